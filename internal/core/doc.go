// Package core provides the CSV editing logic.
//
// This package holds all domain logic independent of any UI or transport
// layer. The web server, the CLI and the terminal editor all drive it.
//
// # Round Trip
//
// A file goes through three steps:
//
//  1. [ReadText] reads the upload into memory (BOM removed, UTF-8 repaired)
//  2. [Parse] splits it into a header set and [Record] values
//  3. [Serialize] turns headers and records back into text
//
// Parsing is a plain split on "\n" and ",". Quoted fields are not
// recognised, so a comma inside quotes is a delimiter. Malformed input never
// fails: short lines leave trailing columns undefined and long lines lose
// their extra fields.
//
// # Editing
//
// A [Document] is the whole editing state: headers, rows and the row under
// edit. Rows carry a generated ID assigned at parse time and every operation
// addresses rows by that ID, so two rows with equal values stay distinct:
//
//	doc := core.Parse("name,age\nAlice,30\nBob,25")
//	_ = doc.Delete(doc.Rows[0].ID)
//	doc.Add(core.Draft{"name": "Carol", "age": "40"})
//	doc.String() // "name,age\nBob,25\nCarol,40"
//
// Only one row can be under edit. [Document.BeginEdit] on a second row
// returns [ErrEditInProgress] until the first is committed or cancelled.
//
// # Sessions
//
// [Service] keeps one Document per browser session in a [Store]
// ([MemoryStore] or [PostgresStore]) and serializes actions per session.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
package core
