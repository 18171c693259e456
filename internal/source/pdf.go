package source

import (
	"bytes"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ExtractPDFLinks returns the URI targets of the link annotations listed
// in each page's /Annots array, in page order.
func ExtractPDFLinks(data []byte) ([]string, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &SourceError{Message: "pdfcpu read: " + err.Error(), Cause: ErrCauseParseFailure}
	}

	var links []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pageDict, _, _, err := ctx.PageDict(pageNr, false)
		if err != nil || pageDict == nil {
			continue
		}
		annotsObj, found := pageDict.Find("Annots")
		if !found {
			continue
		}
		annots, err := ctx.DereferenceArray(annotsObj)
		if err != nil {
			continue
		}
		for _, obj := range annots {
			annot, err := ctx.DereferenceDict(obj)
			if err != nil || annot == nil {
				continue
			}
			if uri, ok := linkURI(ctx, annot); ok {
				links = append(links, uri)
			}
		}
	}
	return links, nil
}

// linkURI reads /A /URI from a /Subtype /Link annotation.
func linkURI(ctx *model.Context, annot types.Dict) (string, bool) {
	subtype, found := annot.Find("Subtype")
	if !found {
		return "", false
	}
	if name, ok := subtype.(types.Name); !ok || name != "Link" {
		return "", false
	}

	actionObj, found := annot.Find("A")
	if !found {
		return "", false
	}
	action, err := ctx.DereferenceDict(actionObj)
	if err != nil || action == nil {
		return "", false
	}

	uriObj, found := action.Find("URI")
	if !found {
		return "", false
	}
	uriObj, err = ctx.Dereference(uriObj)
	if err != nil {
		return "", false
	}

	var uri string
	switch v := uriObj.(type) {
	case types.StringLiteral:
		uri, err = types.StringLiteralToString(v)
	case types.HexLiteral:
		uri, err = types.HexLiteralToString(v)
	default:
		return "", false
	}
	if err != nil {
		return "", false
	}

	uri = strings.TrimSpace(uri)
	return uri, uri != ""
}
