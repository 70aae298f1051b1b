package cloudy

import (
	"encoding/json"
	"fmt"
)

// NodeToMap converts a node into a JSON-ready map. Positions are omitted so
// structurally equal trees produce equal maps.
func NodeToMap(node Node) interface{} {
	switch n := node.(type) {
	case nil:
		return nil
	case *NumberLiteral:
		return map[string]interface{}{"name": "NumberNode", "value": n.Tok.Value}
	case *BoolLiteral:
		return map[string]interface{}{"name": "BoolNode", "value": n.Tok.Value}
	case *StringLiteral:
		return map[string]interface{}{"name": "StringNode", "value": n.Tok.Value}
	case *ListLiteral:
		return map[string]interface{}{"name": "ListNode", "elements": nodesToList(n.Elements)}
	case *DictLiteral:
		pairs := make([]interface{}, len(n.Pairs))
		for i, pair := range n.Pairs {
			pairs[i] = map[string]interface{}{"key": NodeToMap(pair.Key), "value": NodeToMap(pair.Value)}
		}
		return map[string]interface{}{"name": "DictNode", "key_value_pairs": pairs}
	case *VarAccess:
		return map[string]interface{}{"name": "VarAccessNode", "var_name": n.Name.Name()}
	case *VarAssign:
		return map[string]interface{}{"name": "VarAssignNode", "var_name": n.Name.Name(), "value": NodeToMap(n.Value)}
	case *IndexAccess:
		return map[string]interface{}{"name": "IndexNode", "data_node": NodeToMap(n.Data), "index_node": NodeToMap(n.Index)}
	case *IndexAssign:
		return map[string]interface{}{
			"name":     "IndexAssignNode",
			"var_name": n.Name.Name(),
			"index":    NodeToMap(n.Index),
			"value":    NodeToMap(n.Value),
		}
	case *BinaryOp:
		return map[string]interface{}{
			"name":  "BinOpNode",
			"left":  NodeToMap(n.Left),
			"op":    n.Op.Text(),
			"right": NodeToMap(n.Right),
		}
	case *UnaryOp:
		return map[string]interface{}{"name": "UnaryOpNode", "op": n.Op.Text(), "node": NodeToMap(n.Operand)}
	case *If:
		cases := make([]interface{}, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = map[string]interface{}{
				"condition": NodeToMap(c.Condition),
				"body":      NodeToMap(c.Body),
				"is_block":  c.IsBlock,
			}
		}
		var elseCase interface{}
		if n.Else != nil {
			elseCase = map[string]interface{}{"body": NodeToMap(n.Else.Body), "is_block": n.Else.IsBlock}
		}
		return map[string]interface{}{"name": "IfNode", "cases": cases, "else_case": elseCase}
	case *For:
		return map[string]interface{}{
			"name":        "ForNode",
			"var_name":    n.Var.Name(),
			"start_value": NodeToMap(n.From),
			"end_value":   NodeToMap(n.To),
			"step_value":  NodeToMap(n.Step),
			"body":        NodeToMap(n.Body),
			"is_block":    n.IsBlock,
		}
	case *While:
		return map[string]interface{}{
			"name":      "WhileNode",
			"condition": NodeToMap(n.Condition),
			"body":      NodeToMap(n.Body),
			"is_block":  n.IsBlock,
		}
	case *FuncDef:
		params := make([]interface{}, len(n.Params))
		for i, p := range n.Params {
			params[i] = p.Name()
		}
		var name interface{}
		if n.Name != nil {
			name = n.Name.Name()
		}
		return map[string]interface{}{
			"name":        "FuncDefNode",
			"func_name":   name,
			"arg_names":   params,
			"body":        NodeToMap(n.Body),
			"auto_return": n.AutoReturn,
		}
	case *Call:
		return map[string]interface{}{"name": "CallNode", "node_to_call": NodeToMap(n.Callee), "args": nodesToList(n.Args)}
	case *Return:
		return map[string]interface{}{"name": "ReturnNode", "value": NodeToMap(n.Value)}
	case *Break:
		return map[string]interface{}{"name": "BreakNode"}
	case *Continue:
		return map[string]interface{}{"name": "ContinueNode"}
	case *Delete:
		return map[string]interface{}{"name": "DeleteNode", "var_name": n.Name.Name()}
	case *Block:
		return map[string]interface{}{"name": "StatementsNode", "statements": nodesToList(n.Statements)}
	}
	return map[string]interface{}{"name": fmt.Sprintf("%T", node)}
}

func nodesToList(nodes []Node) []interface{} {
	out := make([]interface{}, len(nodes))
	for i, n := range nodes {
		out[i] = NodeToMap(n)
	}
	return out
}

// DumpAST renders a node as indented JSON
func DumpAST(node Node) (string, error) {
	data, err := json.MarshalIndent(NodeToMap(node), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
