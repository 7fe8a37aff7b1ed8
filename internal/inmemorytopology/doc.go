// Package inmemorytopology provides a thread-safe, in-memory implementation
// of the topologystore.Store interface. It also satisfies depgraph.Collector,
// so a populated store can be handed straight to depgraph.Build.
package inmemorytopology
