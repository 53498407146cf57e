// Package model defines the core data types shared across wplinks components.
//
// The central types are Article (a published post identified by ID and slug),
// RawRef (a reference extracted from content before resolution), LinkMap and
// IncomingMap (the directed link graph), and SiteReport (the accumulated
// result of analyzing one site).
package model
