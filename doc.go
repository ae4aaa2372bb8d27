// Package codeact implements an agent loop in which the language model
// acts by writing JavaScript executed in a sandbox rather than by emitting
// discrete tool calls. The model composes tool invocations, intermediate
// variables, and control flow in code; execution output is fed back as the
// next observation until the model signals completion with a finish block
// or the iteration budget runs out.
//
// An Agent owns a sandbox, a shared Context for passing values between
// agents, and an event bus for observing the loop. Dispatcher fans a set
// of tasks out over cloned agents so runs stay isolated.
package codeact
