// Package report renders scan results and decision exports.
//
// Three writers render a scan summary: SimpleWriter (terminal text),
// MarkdownWriter (nao1215/markdown) and JSONWriter. Summaries never contain
// the extracted sensitive values, only their categories. DecisionsXLSX
// exports the stored decision records as an Excel workbook.
package report
