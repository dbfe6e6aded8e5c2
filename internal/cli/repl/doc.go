// Package repl provides the interactive mode of qipc-cli.
//
// Each input line is sent to the peer as q text in a sync message and the
// reply is printed with the selected formatter. Lines starting with a
// backslash are handled locally:
//
//	\\ or \q     quit
//	\h [n]       show the last n history entries
//	\f [prefix]  list known function names
//
// History is kept in memory and persisted to a file when one is set.
package repl
