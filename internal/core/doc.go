// Package core provides the record normalization and validation engine for
// observatory sampling sheets.
//
// The package has no I/O: readers hand it one [RawRecord] per spreadsheet
// row, and it returns a [ValidatedRecord] or a [*RecordError] listing every
// problem in the row. It can be used by web handlers, CLI tools, or tests
// without modification.
//
// # Profiles
//
// A [Profile] is an ordered list of [FieldSpec] plus cross-field rules,
// keyed by domain, strictness tier and source variant. Profiles are
// registered at init time by the profiles subpackage using [Register]:
//
//	base := core.Profile{
//	    Key:    core.ProfileKey{Domain: core.DomainSampling, Tier: core.TierLenient},
//	    Fields: []core.FieldSpec{
//	        {Name: "source_mat_id", Aliases: []string{"source_mat_id", "source_material_id"}, Accept: core.TypeText, Required: true},
//	        {Name: "collection_date", Accept: core.TypeDate, Coerce: core.ToDate},
//	    },
//	}
//	core.Register(base)
//	core.Register(base.Derive(core.TierStrict, core.Require("collection_date")))
//
// The lenient tier accepts every type a field has historically held. The
// semi-strict tier requires the domain's identifying fields. The strict
// tier requires all mandatory fields and narrows each to a single type.
//
// # Pipeline
//
// [Validator.Validate] runs the stages in a fixed order:
//
//  1. [Resolve] binds historical header spellings to canonical names
//  2. [PreNormalize] maps blank strings, NaN and NA-like tokens to nil
//  3. Each field's coercer runs, then [Narrow] fits the result to the
//     field's accepted types; problems are collected, not returned early
//  4. Cross-field rules run only if every field succeeded
//
// [ValidateBatch] fans records out over a bounded worker group and returns
// results in input order.
//
// # Serialization
//
// [Serialize] and [SerializeRow] render values so that a column never mixes
// types across rows: dates as YYYY-MM-DD, int-or-float fields as float,
// text-or-float fields as text.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - VAL000-VAL008: Field and cross-field validation errors
//   - SCH001-SCH002: Unknown profile or tier
//   - DB001-DB009: Run store errors
//   - FILE001-FILE008: File errors (size, encoding, format)
//   - UPL001-UPL006: Rate limits, upload and request errors
package core
