// Package fwf parses fixed-width text tables, the layout console tools use
// when they print aligned columns separated by spaces.
//
// Column boundaries are not declared anywhere in the text. [Parse] infers
// them from whitespace alignment across the header and the first rows, then
// falls back to splitting on whitespace runs when alignment does not agree
// with the header:
//
//	f, err := fwf.Parse(text, fwf.Options{})
//	if err != nil {
//	    return err
//	}
//
//	for _, row := range f.Rows {
//	    fmt.Println(row[0])
//	}
package fwf
