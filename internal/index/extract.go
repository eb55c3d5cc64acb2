package index

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/provider"
	"github.com/jward/understory/internal/store"
)

// declKinds maps, per language, tree-sitter node types to symbol kinds. Only
// node types listed here produce symbols; everything else is descended
// through transparently.
var declKinds = map[string]map[string]provider.SymbolKind{
	"go": {
		"function_declaration": provider.KindFunction,
		"method_declaration":   provider.KindMethod,
		"type_spec":            provider.KindClass, // refined by typeSpecKind
		"const_spec":           provider.KindVariable,
		"var_spec":             provider.KindVariable,
	},
	"typescript": {
		"function_declaration":       provider.KindFunction,
		"method_definition":          provider.KindMethod,
		"class_declaration":          provider.KindClass,
		"abstract_class_declaration": provider.KindClass,
		"interface_declaration":      provider.KindInterface,
		"enum_declaration":           provider.KindEnum,
		"type_alias_declaration":     provider.KindClass,
		"variable_declarator":        provider.KindVariable,
		"public_field_definition":    provider.KindVariable,
	},
	"javascript": {
		"function_declaration": provider.KindFunction,
		"method_definition":    provider.KindMethod,
		"class_declaration":    provider.KindClass,
		"variable_declarator":  provider.KindVariable,
	},
	"python": {
		"function_definition": provider.KindFunction, // refined to method under a class
		"class_definition":    provider.KindClass,
	},
	"rust": {
		"function_item": provider.KindFunction,
		"struct_item":   provider.KindStruct,
		"enum_item":     provider.KindEnum,
		"trait_item":    provider.KindInterface,
		"type_item":     provider.KindClass,
	},
	"c": {
		"function_definition": provider.KindFunction,
		"struct_specifier":    provider.KindStruct,
		"enum_specifier":      provider.KindEnum,
		"type_definition":     provider.KindClass,
	},
	"cpp": {
		"function_definition": provider.KindFunction,
		"class_specifier":     provider.KindClass,
		"struct_specifier":    provider.KindStruct,
		"enum_specifier":      provider.KindEnum,
		"type_definition":     provider.KindClass,
	},
	"java": {
		"method_declaration":      provider.KindMethod,
		"constructor_declaration": provider.KindConstructor,
		"class_declaration":       provider.KindClass,
		"interface_declaration":   provider.KindInterface,
		"enum_declaration":        provider.KindEnum,
	},
	"php": {
		"function_definition":   provider.KindFunction,
		"method_declaration":    provider.KindMethod,
		"class_declaration":     provider.KindClass,
		"interface_declaration": provider.KindInterface,
		"enum_declaration":      provider.KindEnum,
	},
	"ruby": {
		"method":           provider.KindMethod,
		"singleton_method": provider.KindMethod,
		"class":            provider.KindClass,
		"module":           provider.KindClass,
	},
}

// extracted is one declaration found during a parse. Parent indexes into the
// slice extraction produced; -1 means top level.
type extracted struct {
	Sym    store.Symbol
	Parent int
}

// extractSymbols walks the syntax tree and returns declarations in
// depth-first order, so a parent always precedes its children.
func extractSymbols(root *sitter.Node, src []byte, language string) []extracted {
	kinds, ok := declKinds[language]
	if !ok {
		return nil
	}
	var out []extracted
	var walk func(n *sitter.Node, parent int)
	walk = func(n *sitter.Node, parent int) {
		next := parent
		if kind, isDecl := kinds[n.Type()]; isDecl {
			name := declName(n, src)
			if name != "" {
				kind = refineKind(n, language, kind, parent >= 0 && out[parent].Sym.Kind == "class")
				out = append(out, extracted{
					Sym: store.Symbol{
						Name:      name,
						Kind:      kind.String(),
						StartLine: int(n.StartPoint().Row),
						StartCol:  int(n.StartPoint().Column),
						EndLine:   int(n.EndPoint().Row),
						EndCol:    int(n.EndPoint().Column),
					},
					Parent: parent,
				})
				next = len(out) - 1
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i), next)
		}
	}
	walk(root, -1)
	return out
}

// refineKind adjusts table kinds that depend on surrounding structure: Go
// type_spec nodes split into struct/interface, and Python functions nested
// directly in a class body are methods.
func refineKind(n *sitter.Node, language string, kind provider.SymbolKind, underClass bool) provider.SymbolKind {
	if language == "go" && n.Type() == "type_spec" {
		switch typ := n.ChildByFieldName("type"); {
		case typ == nil:
		case typ.Type() == "struct_type":
			return provider.KindStruct
		case typ.Type() == "interface_type":
			return provider.KindInterface
		}
	}
	if language == "python" && n.Type() == "function_definition" && underClass {
		return provider.KindMethod
	}
	return kind
}

// declName pulls the declared identifier out of a declaration node. Most
// grammars expose a "name" field; C-family function definitions bury the
// identifier inside a declarator chain.
func declName(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}
	if decl := n.ChildByFieldName("declarator"); decl != nil {
		return firstIdentifier(decl, src)
	}
	return ""
}

func firstIdentifier(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "identifier", "field_identifier", "type_identifier":
		return n.Content(src)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if name := firstIdentifier(n.NamedChild(i), src); name != "" {
			return name
		}
	}
	return ""
}
