/*
Package ports defines the driven ports (interfaces) of the learning path engine.

These interfaces decouple the core from external implementations, so paths can live in
memory, on disk, in Redis or in PostgreSQL, and statements can go to any record store.

# Key Interfaces

  - PathStore: persists whole path documents (list/get/create/update/delete/duplicate).
  - StatementSender: delivers activity statements to a record store.
  - DistributedLocker: serializes session access across instances.

RunPathStoreContract is a reusable test suite every PathStore adapter runs.
*/
package ports
