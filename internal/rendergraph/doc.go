// Package rendergraph schedules the per-frame work of a rendering pipeline.
//
// # Why rendergraph Exists
//
// A frame is produced by many small passes (geometry, lighting, bloom,
// tonemapping, overlays) that hand intermediate surfaces to each other. Which
// passes are active changes at runtime when effects are toggled, so the order
// in which they run cannot be written down by hand. The package derives that
// order from what every task declares it reads and writes.
//
// # Building Blocks
//
//   - **Resource:** a frame-transient surface or buffer identified by a tag.
//     It is materialized lazily through Resource.Create and brackets writes
//     with StartOutput/EndOutput.
//   - **Task:** a unit of work declaring required inputs, optional inputs,
//     outputs (with an Order and explicit predecessors) and sidecars.
//   - **Timeline:** the build result. An ordered list of Stages, each holding
//     TaskGroups, each group bound to exactly one output resource.
//   - **Graph:** owns the task list and the current Timeline, rebuilds it
//     when the topology is marked dirty and replays it once per frame.
//
// # Leveling
//
// Build assigns every output resource the first step at which it is ready.
// Tasks with no produced inputs seed a FIFO worklist at step 0. Visiting a
// task at step N moves each of its outputs to max(current, N) and, when an
// output moves forward, re-enqueues all of its consumers at N+1. Steps only
// increase, so a DAG converges within len(tasks)*len(resources) visits;
// anything beyond that is reported as ErrCycle.
//
// # Two-Phase Execution
//
// Each stage first calls PrepareInputs on every distinct task it contains and
// only then executes its groups. A group executing late in a stage can rely on
// the inputs of every task in the stage being ready for the frame.
//
// # Thread-Safety
//
// Build and Timeline.Execute are synchronous. Graph serializes its own state
// with a mutex; MarkDirty only flips an atomic flag and is safe from any
// goroutine.
package rendergraph
