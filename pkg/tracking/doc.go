// Package tracking converts learner activity into standardized statements and delivers
// them to a record store.
//
// Builder creates statements, Client posts them (resolving every failure to a
// domain.SendResult), and Dispatcher connects a traversal.Session to both without ever
// blocking navigation.
package tracking
