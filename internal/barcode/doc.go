// Package barcode decodes the Code 128 symbols printed on answer sheets and
// parses the template identity carried by marker symbols.
//
// Marker symbols start with "OMR:". The second field is the sub-type; "ID"
// and "TL" identify a template, and the remaining fields are the template
// name followed by its parameters:
//
//	OMR:ID:ENGLISH101:P1:P2  ->  name ENGLISH101, parameters [P1 P2]
//
// Symbols without the prefix are returned by the decoder but carry no
// meaning for the pipeline.
package barcode
