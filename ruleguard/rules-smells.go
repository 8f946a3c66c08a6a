package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// 1) Dos "guard if" seguidos con el mismo return => combinables con ||
	//    Ej:
	//      if a { return err }
	//      if b { return err }
	//    => if a || b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	// Variante típica con continue (dentro de loops)
	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// 2) For anidados: smell útil para refactor/extract
	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

// sqlContext: todas las queries llevan el ctx del request.
func sqlContext(m dsl.Matcher) {
	m.Match(`$db.Exec($*args)`).
		Where(m["db"].Type.Is(`*sql.DB`) || m["db"].Type.Is(`*sql.Tx`)).
		Report(`use ExecContext so the query is cancelled with the request`).
		Suggest(`$db.ExecContext(ctx, $args)`)

	m.Match(`$db.Query($*args)`).
		Where(m["db"].Type.Is(`*sql.DB`) || m["db"].Type.Is(`*sql.Tx`)).
		Report(`use QueryContext so the query is cancelled with the request`).
		Suggest(`$db.QueryContext(ctx, $args)`)

	m.Match(`$db.QueryRow($*args)`).
		Where(m["db"].Type.Is(`*sql.DB`) || m["db"].Type.Is(`*sql.Tx`)).
		Report(`use QueryRowContext so the query is cancelled with the request`).
		Suggest(`$db.QueryRowContext(ctx, $args)`)
}

// secrets: las claves nunca van al log; solo si están presentes o no.
func secrets(m dsl.Matcher) {
	m.Match(`zap.String($key, $val)`).
		Where(m["key"].Text.Matches(`(?i)"[^"]*(api_?key|secret|password|token)"`) &&
			!m["key"].Text.Matches(`_present"$`)).
		Report(`do not log credentials; log zap.Bool("<name>_present", ...) instead`)
}

// printing: el proceso loguea con zap; stdout es de los comandos y del transporte MCP.
func printing(m dsl.Matcher) {
	m.Match(`fmt.Println($*_)`, `fmt.Printf($*_)`, `log.Printf($*_)`, `log.Println($*_)`).
		Where(!m.File().PkgPath.Matches(`/cmd/`)).
		Report(`use the injected *zap.Logger instead of printing`)
}
