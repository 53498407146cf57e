// Package graph aggregates resolved outbound links into the final
// per-article report.
//
// Aggregation derives the incoming-link map from the outgoing-link map and
// builds one report row per known article, sorted by incoming count
// descending with ties kept in directory-discovery order.
package graph
