/*
Package sigs keeps a sequence number for every address that signs a state
change.

A signature covers the sequence of its signer, and the sequence is
incremented each time a signed change is delivered. An intercepted request
can therefore be delivered only once.
*/
package sigs
