// Package rules compiles configured search rules into regular expression
// matchers and applies them to extracted text. Every value it returns has
// already been censored; callers never see a raw match.
//
// A rule is a core pattern plus optional literal context. Each
// (prefix, suffix) pair of a rule becomes one matcher of the form
//
//	prefix \s? (core) \s? suffix
//
// and only the core group is reported.
package rules
