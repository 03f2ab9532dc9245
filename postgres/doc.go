/*
Package postgres manages the database connection. As part of the connection process, we also ensure that all migrations
have been run on the proper database. The situation where the database is simply a target for some testing has been
considered as well. In this scenario, we are dropping the public schema.

*DB wraps *gorm.DB with a small set of query building and finisher methods that translate database errors
into the app's sentinel errors. UserStore builds on *DB to serve the admin site.
*/
package postgres
