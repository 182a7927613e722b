// Implements a static analysis tool that checks for:
// 1. Usage of built-in panic() function anywhere in the code
// 2. Usage of log.Fatal()/log.Fatalf()/log.Fatalln() or os.Exit() outside of main function in main package
// 3. Direct time.Now() calls inside monitor packages, which must read their injected clock
package main

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

const monitorPkgPath = "internal/monitor"

// Analyzer is the main analyzer for the agent's coding rules
var Analyzer = &analysis.Analyzer{
	Name: "monitorlint",
	Doc:  "reports panic, log.Fatal/os.Exit outside of main and direct time.Now in monitor packages",
	Run:  run,
	Requires: []*analysis.Analyzer{
		inspect.Analyzer,
	},
}

func isMonitorPackage(path string) bool {
	return strings.HasSuffix(path, monitorPkgPath) || strings.Contains(path, monitorPkgPath+"/")
}

// run executes the analysis logic
func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
		(*ast.FuncDecl)(nil),
	}

	inMain := false
	monitorPkg := isMonitorPackage(pass.Pkg.Path())

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		switch node := n.(type) {
		case *ast.FuncDecl:
			inMain = pass.Pkg.Name() == "main" && node.Name.Name == "main" && node.Recv == nil
		case *ast.CallExpr:
			if ident, ok := ast.Unparen(node.Fun).(*ast.Ident); ok {
				if b, ok := pass.TypesInfo.Uses[ident].(*types.Builtin); ok && b.Name() == "panic" {
					pass.Reportf(ident.Pos(), "found usage of panic")
				}
				return
			}

			fn, ok := typeutil.Callee(pass.TypesInfo, node).(*types.Func)
			if !ok || fn.Pkg() == nil {
				return
			}
			qualified := fn.Pkg().Path() + "." + fn.Name()
			switch qualified {
			case "log.Fatal", "log.Fatalf", "log.Fatalln", "os.Exit":
				if !inMain {
					pass.Reportf(node.Pos(), "found usage of %s outside of main function", qualified)
				}
			case "time.Now":
				if monitorPkg {
					pass.Reportf(node.Pos(), "found usage of time.Now in monitor package, use the injected clock")
				}
			}
		}
	})

	return nil, nil
}
