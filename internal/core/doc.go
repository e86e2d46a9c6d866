// Package core provides the ingestion pipeline for delimited deposit extracts.
//
// The package holds all domain logic independent of any transport or storage
// engine. Web handlers, the CLI and tests use it without modification.
//
// # Architecture
//
// The package is organized around a few concepts:
//
//   - Datasets: column schemas registered via the registry. One generic
//     reader, validator and loader serve every dataset.
//   - Service: the entry point for imports, dry runs, history and bulk updates.
//   - Store: the storage collaborator, implemented under internal/store.
//
// # Dataset Registry
//
// Datasets are registered at init time using [Register]:
//
//	core.Register(core.Dataset{
//	    Key: "currency_rates", Group: "Reference", Table: "currency_rates",
//	    Delimiter: '|', HeaderMode: core.HeaderStrict,
//	    Columns: []core.Column{
//	        {Name: "currency_code", Kind: core.KindText, Required: true},
//	        {Name: "rate", Kind: core.KindDecimal, Required: true},
//	    },
//	})
//
// # Import Flow
//
//  1. [Parse] strips the BOM, sanitizes UTF-8 and tokenizes the file
//  2. The header is checked in strict or required-subset mode; a mismatch
//     rejects the whole file with a single HEADER error
//  3. Every row is validated; a row with any error is dropped whole
//  4. [Reduce] optionally caps rows per category
//  5. [Loader.Load] writes batches sized by [PlanBatch] in one transaction
//
// # Error Handling
//
// Row problems are [ValidationError] values in the result, never returned
// errors. Technical errors are mapped to user-facing messages with
// [MapError], each with a code for support reference (DB, FILE, HDR, IMP, DS).
package core
