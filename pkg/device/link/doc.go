// Package link frames byte streams between the controller and a
// serial-attached coprocessor. The wire protocol is sequence-numbered
// frames with an explicit sync handshake: either side may demand a
// resync at any time, and a parser that loses its place recovers by
// re-running the handshake instead of guessing at frame boundaries.
package link
