/*
Package session hosts many stories for concurrent callers.

A Manager keeps one storyline.Session per story and serializes access to it
with reference-counted local locks and, when several replicas share a
checkpoint medium, an optional distributed lock. Under a distributed lock the
cached session is resynchronized from the medium before every operation.
*/
package session
