// Package content wraps golang.org/x/net/html nodes with the handful of tree
// operations the template engine relies on: parsing and rendering documents,
// deep cloning, positional child access, attribute edits and template lookup.
// Template elements keep their content as ordinary children, which is how the
// x/net/html parser represents `<template>` bodies.
package content
