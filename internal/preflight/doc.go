// Package preflight provides readiness checks for external services
// and filesystem paths that Stylus depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs failures before the
//     workflow manager starts claiming items, so a dead slskd or an
//     unwritable library shows up immediately instead of on item one.
//   - The CLI "stylus status" command uses individual check functions
//     (CheckSlskd, CheckDirectoryAccess) to display service health.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
