// Package interpreter executes keystroke programs one instruction at a time.
// The Engine keeps the program counter as a byte offset into the current
// program, resolves local and global labels, and maintains the return stack.
// The solver and the integrator run as callbacks of the same engine: they
// push a sentinel frame before entering the user's function, and the RTN
// that pops it resumes their continuation instead of a program address.
package interpreter
