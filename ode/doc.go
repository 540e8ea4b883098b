// Package ode implements a minimal hierarchical data model: a tree of
// named nodes where each node carries either an arbitrary byte payload
// or an ordered set of uniquely named children, together with two wire
// codecs for exchanging such trees as byte streams.
//
// # Data Model
//
// Every node has a name. A node may hold a value (arbitrary bytes) or
// subordinate nodes, but never both; it can hold neither, as an
// "empty" node. Direct children of a node always have unique names,
// except after Wipe. A node without a parent is a root; roots are made
// by New and by the codec parse functions.
//
// Children are stored by value in one contiguous array owned by the
// parent. A pointer to a child therefore stays valid only until the
// next structural change (Add, Delete) on its parent; reacquire child
// pointers after such calls. All mutations are atomic: a failed change
// is not applied, in whole or in part.
//
// # Text Format
//
// Strings are enclosed in double quote '"' characters:
//
//	"string"
//
// A Rust-inspired raw string fence is used when the content itself
// contains quotes:
//
//	#"str"ing"#
//	##"str"#ing"##
//
// Integral nodes (a name and value, or only a name) are terminated by
// a semicolon ';' and their fields are separated by a colon ':':
//
//	"name";
//	"name":"value";
//
// A parent and its subordinates are separated by pipe '|' characters,
// the number of which is the number of subordinates:
//
//	"parent"|"child";
//	"parent"|||"1";"2";"3";
//
// # Binary Format
//
// The packed form is one magic byte followed by recursive records:
// a length-prefixed name, a tag byte, and for value nodes a
// length-prefixed payload or for parent nodes a child count and the
// child records. Lengths and counts are 64-bit integers in native byte
// order; the format is not portable between deployments of differing
// byte order. A second magic introduces the same record stream inside
// a zstd frame.
//
// # Allocation
//
// All engine and codec allocations go through an Allocator capability,
// settable per tree with NewIn and the *In parse variants. The default
// allocator is backed by the Go runtime and never fails; substitutes
// (pools, guarded regions, fault injectors) implement the interface in
// alloc.go. Wipe and WipingAllocator support trees holding secrets.
//
// The package performs no locking and no logging; callers serialize
// access to a tree externally, and every failure is a return value.
package ode
