// Package hook is the syscall-hook adaptation layer: when hooking is
// enabled for the calling goroutine-thread, Sleep/Read/Write/Connect/
// Accept and their variants attempt the underlying non-blocking syscall,
// arm the matching event on an ioreactor.Manager and yield the calling
// fiber when it would block, and retry on resume — otherwise they forward
// straight to the real syscall.
//
// The source program intercepts libc symbols by dynamic-symbol lookup at
// startup (a dlopen/dlsym trampoline); that technique has no idiomatic Go
// equivalent (Go binaries are statically linked, and symbol interposition
// of libc is not a supported technique). Instead hook exposes Go
// functions with matching names and ABI-equivalent signatures over raw
// fds (golang.org/x/sys/unix types) — callers opt in by calling these
// instead of the blocking unix/stdlib equivalents while hooking is
// enabled, the same "preserve the call signature, swap the body"
// adaptation spec.md's own glossary describes for the source's
// interposition layer.
//
// Resolves spec.md §9's declared source gap: the fd-metadata table
// (is-a-socket, user-requested-nonblocking, recv/send timeouts) that the
// source declares but never supplies a body for.
package hook
