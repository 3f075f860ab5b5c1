// Package phone formats and validates mobile-money phone numbers per country.
//
// Input is masked with the country's display format ("XXX XXX XXXX") and
// normalized for submission as dial code plus local digits:
//
//	gh := phone.MustLookup("GH")
//	gh.Format("0241234567")    // "024 123 4567"
//	gh.Normalize("0241234567") // "233241234567"
package phone
