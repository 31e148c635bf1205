// Package realtime is the single entry point to the Firebase Realtime
// Database for the rest of the program.
//
// A [Client] is built once at startup, either with [Connect] from the loaded
// configuration or with [New] over any [Database] implementation, and is
// passed explicitly to the components that need data access. It exposes the
// seven primitives the application relies on:
//
//   - [Client.Subscribe] registers a [ChangeFunc] and returns a [Subscription]
//   - [Client.Get] reads a [Snapshot] once
//   - [Client.Set] overwrites a node
//   - [Client.Update] merges child paths without touching siblings
//   - [Increment] builds an atomic server-side add directive
//   - [ServerTimestamp] builds a server-side write-time directive
//   - [Client.Transaction] runs an optimistic read-modify-write
//
// Every call is forwarded to the underlying reference as given. Retries,
// conflict handling and consistency belong to the database service and its
// client library; this package adds none of its own.
package realtime
