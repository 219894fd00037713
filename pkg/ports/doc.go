/*
Package ports defines the driven ports (interfaces) of the workflow interpreter.

These interfaces decouple the core logic from external implementations, so a
session can run against files on disk, a notes vault or memory, and keep its
snapshots locally or in Redis.

# Key Interfaces

  - Document / DocumentStore: Read and write the text holding a workflow.
  - StateStore: Persists session snapshots.
  - DistributedLocker: Serializes document edits across processes.
  - Navigator: The session API consumed by remote adapters.
*/
package ports
