package ir

// Canonical returns the catalog as an IRObject, the form written by the
// compile command and hashed by Fingerprint. Positions are omitted so the
// result depends only on schema content.
func (c *Catalog) Canonical() IRObject {
	obj := IRObject{
		"ir_version": IRString(IRVersion),
		"name":       IRString(c.Name),
		"version":    IRString(c.Version),
		"copyright": IRObject{
			"spdx":   IRString(c.Copyright.SPDX),
			"holder": IRString(c.Copyright.Holder),
			"year":   IRString(c.Copyright.Year),
		},
	}

	constants := IRArray{}
	for _, k := range c.Constants {
		constants = append(constants, IRObject{
			"name":  IRString(k.Name),
			"type":  IRString(k.Type.String()),
			"value": k.Value,
		})
	}
	obj["constants"] = constants

	enums := IRArray{}
	for _, e := range c.Enums {
		values := IRArray{}
		for _, v := range e.Values {
			values = append(values, IRObject{
				"label": IRString(v.Label),
				"value": IRString(FormatInteger(e.Underlying, v.Value)),
			})
		}
		enums = append(enums, IRObject{
			"name":       IRString(e.Name),
			"underlying": IRString(e.Underlying.String()),
			"flags":      IRBool(e.Flags),
			"stypes":     IRBool(e.STypes),
			"values":     values,
		})
	}
	obj["enums"] = enums

	structs := IRArray{}
	for _, s := range c.Structs {
		structs = append(structs, IRObject{
			"name":   IRString(s.Name),
			"fields": canonicalFields(s.Fields),
		})
	}
	obj["structs"] = structs

	exts := IRArray{}
	for _, s := range c.Extensibles {
		e := IRObject{
			"name":   IRString(s.Name),
			"fields": canonicalFields(s.Fields),
		}
		if s.SType != nil {
			e["stype"] = IRObject{
				"enum":  IRString(s.STypeEnum),
				"label": IRString(s.SType.Label),
				"value": IRInt(int64(s.SType.Value)),
			}
		}
		exts = append(exts, e)
	}
	obj["extensible_structs"] = exts

	objects := IRArray{}
	for _, o := range c.Objects {
		objects = append(objects, IRObject{
			"name":    IRString(o.Name),
			"go_name": IRString(o.GoName),
		})
	}
	obj["objects"] = objects

	funcs := IRArray{}
	for _, f := range c.Functions {
		params := IRArray{}
		for _, p := range f.Params {
			o := IRObject{
				"name": IRString(p.Name),
				"type": canonicalRef(p.Type),
			}
			if p.Qualifier != "" {
				o["qualifier"] = IRString(p.Qualifier)
			}
			params = append(params, o)
		}
		funcs = append(funcs, IRObject{
			"name":   IRString(f.Name),
			"params": params,
			"return": canonicalRef(f.Return),
		})
	}
	obj["functions"] = funcs

	protos := IRArray{}
	for _, p := range c.Protocols {
		cmds := IRArray{}
		for _, cmd := range p.Commands {
			o := IRObject{
				"name":      IRString(cmd.Name),
				"direction": IRString(cmd.Direction.String()),
				"fields":    canonicalFields(cmd.Fields),
			}
			if cmd.Opcode != nil {
				o["opcode"] = IRInt(int64(*cmd.Opcode))
			}
			cmds = append(cmds, o)
		}
		protos = append(protos, IRObject{
			"name":     IRString(p.Name),
			"version":  IRString(p.Version),
			"commands": cmds,
		})
	}
	obj["protocols"] = protos

	defs := IRArray{}
	for _, d := range c.Definitions {
		items := IRArray{}
		for _, it := range d.Items {
			items = append(items, IRObject{
				"kind":  IRString(it.Kind.String()),
				"index": IRInt(int64(it.Index)),
			})
		}
		defs = append(defs, IRObject{
			"name":  IRString(d.Name),
			"items": items,
		})
	}
	obj["definitions"] = defs

	files := IRArray{}
	for _, f := range c.Files {
		inst := IRArray{}
		for _, i := range f.Instantiate {
			inst = append(inst, IRString(c.Definitions[i].Name))
		}
		incl := IRArray{}
		for _, s := range f.Includes {
			incl = append(incl, IRString(s))
		}
		files = append(files, IRObject{
			"out_path":    IRString(f.OutPath),
			"file_name":   IRString(f.FileName),
			"kind":        IRString(string(f.Kind)),
			"package":     IRString(f.Package),
			"includes":    incl,
			"instantiate": inst,
		})
	}
	obj["generated_files"] = files

	return obj
}

func canonicalRef(r TypeRef) IRValue {
	return IRObject{
		"kind": IRString(r.Kind.String()),
		"name": IRString(r.Name),
	}
}

func canonicalFields(fields []Field) IRArray {
	out := IRArray{}
	for _, f := range fields {
		o := IRObject{
			"name": IRString(f.Name),
			"type": canonicalRef(f.Type),
		}
		if f.IsArray() {
			o["array_len"] = IRInt(int64(f.ArrayLen))
		}
		if f.IsPointer() {
			o["count"] = IRString(f.Count)
		}
		if f.Qualifier != "" {
			o["qualifier"] = IRString(f.Qualifier)
		}
		out = append(out, o)
	}
	return out
}
