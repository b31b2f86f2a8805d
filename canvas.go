// Package canvas is a report-authoring engine for BI dashboards.
//
// A report is a grid of rows; each row column holds at most one visual
// (card, table, matrix, bar, column, line, pie, gauge). Dropping a data
// column on a visual slot binds it, derives a default aggregation and keeps
// the visual's implicit filters in step. Page and visual filters narrow the
// rows a visual is queried with, and cascading option lists show what each
// filter can still select.
//
// Usage:
//
//	eng := engine.New(engine.WithCatalog(catalog))
//	ed := report.New(model.NewDocument("Sales"),
//	    report.WithEngine(eng),
//	    report.WithQueryService(svc),
//	)
//	_ = ed.Update(func(d model.Dashboard) (model.Dashboard, error) {
//	    d = eng.AddRow(d, model.TemplateTwoEqual)
//	    return eng.PlaceVisual(d, model.Position{}, model.KindCard)
//	})
//	_ = ed.Bind(model.Position{}, "value", model.FieldBinding{Table: "orders", Column: "amount"})
//	_, _ = ed.Refresh(ctx)
//
// Packages:
//
//	model    report document types and their JSON form
//	schema   column type classification and table catalogs
//	engine   binding, filters, cascading options, sort pipeline, grid layout,
//	         dirty state, fetch versioning, local aggregation
//	query    query and distinct-value services (in-memory, HTTP)
//	store    PostgreSQL persistence
//	report   the open report: atomic edits, save/discard, versioned refresh
//	api      HTTP surface
//	helpers  CSV/XLSX import and XLSX export
//
// The engine never renders and never calls a service itself: every
// operation is a pure function from one model value to the next.
package canvas
