// Package msgs defines the typed envelope exchanged between a robot
// controller and its remote clients, and the registry of message types.
//
// Every message on the wire is a Typed: a type ID, a sequence number
// correlating command replies, and the protobuf encoding of the message.
package msgs
