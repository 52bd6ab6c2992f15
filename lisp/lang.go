// Copyright © 2018 The ELPS authors

package lisp

// Version is the version of the runtime core.
const Version = "0.1.0"

// DefaultLangNamespace is the name of the namespace holding the runtime's
// own Vars.
const DefaultLangNamespace = "lisp"

// DefaultUserNamespace is the namespace *ns* is bound to before any module
// is loaded.
const DefaultUserNamespace = "user"

// NSVarName is the name of the dynamic Var holding the namespace code is
// evaluated in.  A loader binds it for the duration of each unit it loads.
const NSVarName = "*ns*"

// FileVarName is the name of the dynamic Var holding the path of the source
// file being loaded, or the empty string.
const FileVarName = "*file*"

// VarArgSymbol separates the required parameters of a function from its
// rest parameter in printed parameter lists.
const VarArgSymbol = "&"
