package main

import (
	"fmt"
	"strings"

	"gitlab.bluewillows.net/root/tdns-update/pkg/dnsupdate"
)

// parseDataSpec parses the "TYPE:item1,item2,..." grammar used for the
// update subcommand's positional record-data argument. A spec with no
// colon (bare "TYPE") is valid too, meaning "no data" — used by the
// delete-rrset and delete-name operations, which only need a type.
func parseDataSpec(spec string) (uint16, []string, error) {
	typePart, dataPart, hasData := strings.Cut(spec, ":")

	rtype, err := dnsupdate.StringToType(typePart)
	if err != nil {
		return 0, nil, argumentError(err.Error())
	}
	if !hasData {
		return rtype, nil, nil
	}
	if !dnsupdate.IsUserFacingType(rtype) {
		return 0, nil, argumentError(fmt.Sprintf("record data of type %s is not supported; use A, AAAA, or TXT", typePart))
	}

	items := strings.Split(dataPart, ",")
	for i, item := range items {
		items[i] = strings.TrimSpace(item)
		if items[i] == "" {
			return 0, nil, argumentError(fmt.Sprintf("empty record data item in %q", spec))
		}
	}
	return rtype, items, nil
}
