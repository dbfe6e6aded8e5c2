// Package domain defines the IPC value model and the error taxonomy.
//
// A Value is a tree: atoms, typed lists, compound lists, dictionaries and
// tables, plus the generic null and error values. The package has no IO
// dependencies; the wire codec and the session layer build on it.
//
//   - Value: constructors, typed getters, mutation and shape operations
//   - Sentinels: null and infinity constants with IsNull/IsInf/IsNegInf
//   - Temporal: conversion between time.Time and the 2000.01.01 epoch
//   - Errors: coded errors grouped by Kind
package domain
