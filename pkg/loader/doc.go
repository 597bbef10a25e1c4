// Package loader turns structural matches into match records and runs their
// beforeLoad and loader hooks.
//
// Records are cached by match id. Navigating between locations that resolve
// to the same id reuses the record: fresh data is served as is, stale data is
// served while a background load refreshes it, and invalid or errored records
// load again.
//
//	o := loader.New(tree, match.NewCache(), loader.Options{})
//	records := o.Build(loader.BuildInput{Match: res, Location: loc})
//	result, err := o.Load(ctx, records, loader.LoadOptions{Location: loc})
//
// Every hook call goes through the configured interceptors, which is where
// metrics and tracing attach.
package loader
