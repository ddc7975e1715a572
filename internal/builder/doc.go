/*
Package builder is the bridge between the static configuration model (defined
in the 'config' package) and the render graph (the 'rendergraph' package).

Assembly is a three-phase process:

 1. Resource Declaration: every registered resource kind becomes a pool
    factory, every `resource` block is declared with its kind and ownership,
    and external resources are constructed once and put into the pool. Tags
    that tasks mention without a `resource` block fall back to the default
    resource kind.

 2. Task Construction: every enabled `task` block is looked up in the
    registry by kind, its `arguments` are decoded into the kind's argument
    struct through the config.Converter, and the kind's constructor returns
    the rendergraph.Task.

 3. Hand-off: the resulting tasks and final tag are applied to a
    *rendergraph.Graph, which levels them lazily before its next frame.
*/
package builder
