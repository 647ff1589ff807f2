// Package car implements the content-addressable-archive container formats
// used to persist an encrypted filesystem tree: the flat CARv1 sequence of
// length-prefixed blocks, and the varint and block-framing primitives that
// every other layer in this module builds on.
//
// The indexed CARv2 container lives in the v2 subpackage; the blockstore
// abstractions that tie a container to a Go-native get/put/root API live in
// the blockstore subpackage.
package car
