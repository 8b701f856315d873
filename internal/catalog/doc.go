// Package catalog loads user-defined function declarations and symbol
// resolver settings from CUE.
//
// A catalog file looks like:
//
//	resolver: {
//		search_path: ["./udf"]
//		load_timeout: "2s"
//		database: "artifacts.db"
//	}
//
//	function: myudf: {
//		args: ["int64", "int64"]
//		returns: "int64"
//		link: "_myudf"
//	}
//
// A function may also be given as a list of overloads. Functions only
// declare their bodies: the compiled module carries a declaration of the
// link symbol, and the symbol resolver supplies the body on first call.
package catalog
