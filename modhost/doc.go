// Package modhost resolves bare module specifiers against a remote module
// host. It rewrites import specifiers in snippet source to host URLs and
// fetches module source for the sandbox's require bridge.
package modhost
