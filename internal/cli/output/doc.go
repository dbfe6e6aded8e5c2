// Package output renders IPC values for qipc-cli.
//
// Four formats are supported: q display syntax, aligned tables, JSON and
// YAML. Tables, keyed tables and symbol-keyed dictionaries render as rows in
// table mode; everything else falls back to q syntax.
package output
