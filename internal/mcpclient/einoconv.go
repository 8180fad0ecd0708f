package mcpclient

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
)

// EinoToolInfos converts live MCP tool descriptions into the eino tool infos
// the chat model binds. Schemas that cannot be mapped lose their parameter
// detail but keep name and description; the server still validates arguments
// on its side.
func EinoToolInfos(tools []ToolInfo) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info := &schema.ToolInfo{
			Name: t.Name,
			Desc: t.Description,
		}
		if params := paramsFromJSONSchema(t.InputSchema); len(params) > 0 {
			info.ParamsOneOf = schema.NewParamsOneOfByParams(params)
		}
		infos = append(infos, info)
	}
	return infos
}

// paramsFromJSONSchema maps a JSON-schema object to eino parameter infos.
// Only the object/properties/required subset MCP servers actually emit is
// handled.
func paramsFromJSONSchema(raw any) map[string]*schema.ParameterInfo {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	props, ok := obj["properties"].(map[string]any)
	if !ok {
		return nil
	}

	required := map[string]bool{}
	if reqList, ok := obj["required"].([]any); ok {
		for _, r := range reqList {
			if name, ok := r.(string); ok {
				required[name] = true
			}
		}
	}

	params := make(map[string]*schema.ParameterInfo, len(props))
	for name, rawProp := range props {
		prop, ok := rawProp.(map[string]any)
		if !ok {
			continue
		}
		params[name] = parameterInfo(prop, required[name])
	}
	return params
}

func parameterInfo(prop map[string]any, required bool) *schema.ParameterInfo {
	info := &schema.ParameterInfo{
		Type:     dataType(prop["type"]),
		Required: required,
	}
	if desc, ok := prop["description"].(string); ok {
		info.Desc = desc
	}
	if enum, ok := prop["enum"].([]any); ok {
		for _, e := range enum {
			info.Enum = append(info.Enum, fmt.Sprint(e))
		}
	}
	switch info.Type {
	case schema.Object:
		info.SubParams = paramsFromJSONSchema(prop)
	case schema.Array:
		if items, ok := prop["items"].(map[string]any); ok {
			info.ElemInfo = parameterInfo(items, false)
		}
	}
	return info
}

func dataType(raw any) schema.DataType {
	switch raw {
	case "string":
		return schema.String
	case "number":
		return schema.Number
	case "integer":
		return schema.Integer
	case "boolean":
		return schema.Boolean
	case "array":
		return schema.Array
	case "object":
		return schema.Object
	case "null":
		return schema.Null
	default:
		return schema.String
	}
}
