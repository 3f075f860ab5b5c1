// Package paymethod resolves which payment rail a checkout uses.
//
// Tenants enable rails through Capabilities. Resolve applies the chooser
// rules: nothing enabled is a blocking ErrNoMethods, a single rail is
// selected implicitly, two rails are offered as a choice. A forced provider
// (for deployments narrowed to one gateway) overrides the flags entirely.
package paymethod
