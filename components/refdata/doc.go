// Package refdata serves reference-data catalogs (hubs, grain types) as
// paginated option searches for select-search fields.
//
// Each catalog is mounted at <basePath><RoutePrefix>/<name> and answers
// GET and HEAD requests of the form ?q=&page=&pageSize=&value= with
// {"data":[{"value","label"}],"hasMore":bool,"total":int}. The default
// catalogs are embedded under data/.
package refdata
