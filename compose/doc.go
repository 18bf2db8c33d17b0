// Package compose provides the combinators that assemble primitives into
// flows: sequences (ordered pipelines), parallels (concurrent fan-out),
// routers (dynamic dispatch) and loops (iterative execution).
//
// All combinators implement core.Primitive themselves, so they nest freely:
// a sequence step may be a parallel whose branches are sequences, and any
// node may additionally be wrapped by resilience or cache decorators.
package compose
