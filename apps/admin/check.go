package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/catalog"
)

// check validates the catalog and renders every page, listing each block that fails.
func (cli *commandLine) check(ctx context.Context) error {
	cat, err := cli.catalogRepository().Load(ctx)
	if err != nil {
		return err
	}
	if err := cat.Validate(); err != nil {
		var invalid *catalog.InvalidCatalogError
		if errors.As(err, &invalid) {
			for _, p := range invalid.Problems {
				_, _ = fmt.Fprintln(cli.out, p)
			}
		}
		return err
	}

	pageErrs := cat.Check()
	for _, pe := range pageErrs {
		_, _ = fmt.Fprintln(cli.out, pe.Error())
	}
	if len(pageErrs) > 0 {
		return errors.Errorf("%d page(s) cannot be rendered", len(pageErrs))
	}

	pages := 0
	for _, b := range cat.Books {
		pages += len(b.Pages)
	}
	_, _ = fmt.Fprintf(cli.out, "catalog OK: %d book(s), %d page(s), %d material(s)\n", len(cat.Books), pages, len(cat.Materials))
	return nil
}

// render prints the rendered page as indented JSON.
func (cli *commandLine) render(ctx context.Context, subject, page string) error {
	number, err := strconv.Atoi(page)
	if err != nil || number < 1 {
		return errInvalidPage
	}

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	catalog.InitValidators(validate, translator)

	svc, err := catalog.NewService(ctx, cli.catalogRepository(), validate, translator, cli.logger)
	if err != nil {
		return err
	}
	rp, err := svc.RenderPage(subject, number, "")
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rp)
}
