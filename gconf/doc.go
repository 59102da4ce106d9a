/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each package keeps at most one configuration object, stored as a singleton
under the "_c:<package>" key. A configuration can be loaded from the genesis
file with InitConfig. Configurations that declare an owner can be changed
only by that owner, using Update.
*/
package gconf
