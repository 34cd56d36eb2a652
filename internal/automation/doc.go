// Package automation implements the promotional posting flows: mining the
// affiliate catalog into pending suggestions, the human approval paths,
// posting-window scheduling and the queue dispatcher. The Engine owns the
// business rules; persistence sits behind the Store interface and the two
// upstream APIs behind small client interfaces, so tests run against
// in-memory fakes.
package automation
