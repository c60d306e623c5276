// Package deck manages assignment PDFs: listing, text extraction via
// pdftotext, page counting via pdfinfo, and slide-image rendering via
// pdftoppm. Image rendering degrades to a no-images mode when poppler is not
// installed.
package deck
