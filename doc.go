/*
Package pdnode embeds a dynamic signal-processing engine into a real-time
audio render callback.

Concept

The engine is driven from two sides. The render goroutine calls
Node.Process once per block and is the only goroutine that touches engine
state. Control goroutines call every other method: they never reach the
engine directly, but enqueue commands that are applied at the start of
the next block.

    control goroutine                   render goroutine
    Send*, LoadPatch, ...  --commands-->  Process: apply, compute, pump
    DrainEvents            <--events----

Neither side blocks the other. The command queue is bounded and never
drops: ErrQueueFull is returned to the caller instead. The event queue is
lossy, dropped events are only counted.

Results

Operations that produce a value, like LoadPatch and ReadArray, return a
future.Future. It's fulfilled on the render goroutine and awaited with a
context or timeout, so a stalled host cannot hang control code. Arbitrary
engine access is available with RunWithResult:

    f, err := pdnode.RunWithResult(n, func(e engine.Engine) (int, error) {
        return e.ArraySize("table"), nil
    })

Lifecycle

Node starts idle. Initialize configures the engine and enables
computation, Uninitialize disables it. While idle, commands are still
applied and events pumped, but buffers are left untouched. Close disposes
an idle node once the host stopped rendering.
*/
package pdnode
