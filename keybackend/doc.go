// Package keybackend provides key material for signing and verifying
// requests.
//
// Private key sources implement manta.KeySource:
//
//   - FileSource reads a PEM file from disk ("~" is expanded)
//   - FSSource reads a PEM file from an fs.FS, such as an embed.FS
//   - StaticSource serves PEM bytes held in memory
//
// MapKeyStore implements manta.PublicKeyLookup for the emulator. It maps
// key ids ("/<account>/keys/<fingerprint>") to RSA public keys loaded from
// inline config or a JSON file of authorized keys.
package keybackend
