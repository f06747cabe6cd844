// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

// TypeScript tree-sitter node types used by the migration engine.
//
// Node tree shapes relied upon:
//
//	program
//	├── import_statement
//	│   ├── type?                        // import type { ... }
//	│   ├── import_clause
//	│   │   ├── identifier               // default import
//	│   │   ├── namespace_import         // * as ng
//	│   │   └── named_imports
//	│   │       └── import_specifier+    // name: identifier, alias: identifier?
//	│   └── string                       // module path
//	├── export_statement
//	│   ├── decorator*                   // decorators written before export
//	│   └── class_declaration
//	└── class_declaration | abstract_class_declaration | class
//	    ├── decorator*
//	    ├── type_identifier              // name
//	    └── class_body
//	        ├── decorator*               // decorators of the next method_definition
//	        ├── method_definition        // get? set? property_identifier formal_parameters
//	        └── public_field_definition  // decorator* property_identifier initializer?
const (
	NodeProgram = "program"

	NodeImportStatement = "import_statement"
	NodeImportClause    = "import_clause"
	NodeNamespaceImport = "namespace_import"
	NodeNamedImports    = "named_imports"
	NodeImportSpecifier = "import_specifier"

	NodeExportStatement = "export_statement"

	NodeClassDeclaration         = "class_declaration"
	NodeAbstractClassDeclaration = "abstract_class_declaration"
	NodeClassExpression          = "class"
	NodeClassBody                = "class_body"
	NodeMethodDefinition         = "method_definition"
	NodePublicFieldDefinition    = "public_field_definition"
	NodeDecorator                = "decorator"

	NodeIdentifier                = "identifier"
	NodeTypeIdentifier            = "type_identifier"
	NodePropertyIdentifier        = "property_identifier"
	NodePrivatePropertyIdentifier = "private_property_identifier"
	NodeComputedPropertyName      = "computed_property_name"
	NodeMemberExpression          = "member_expression"
	NodeCallExpression            = "call_expression"
	NodeArguments                 = "arguments"

	NodeObject             = "object"
	NodePair               = "pair"
	NodeSpreadElement      = "spread_element"
	NodeShorthandProperty  = "shorthand_property_identifier"
	NodeString             = "string"
	NodeStringFragment     = "string_fragment"
	NodeEscapeSequence     = "escape_sequence"
	NodeTemplateString     = "template_string"
	NodeTemplateSubstitute = "template_substitution"
	NodeNumber             = "number"
	NodeComment            = "comment"
	NodeError              = "ERROR"

	TokenGet   = "get"
	TokenSet   = "set"
	TokenComma = ","
	TokenType  = "type"
)
