// Package dat reads members of DAT archives as positioned binary streams.
//
// An [Item] gives uniform access to one archive member, whether it is
// stored raw or zlib-compressed, and whether its bytes come from a
// standalone file or from an offset inside a larger archive. Items are
// lazy: nothing is read until the first call that needs the content, at
// which point the whole member is loaded (and inflated) into memory once.
//
// Archives use the DAT2 layout: member data, then a directory of entry
// records, then an eight-byte footer giving the directory and archive sizes.
//
// # Quick Start
//
// Open an archive and read a member:
//
//	a, err := dat.OpenFile("master.dat")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	it, err := a.Open(`ART\INTRFACE\IFACE.FRM`, dat.WithEndianness(dat.BigEndian))
//	if err != nil {
//	    return err
//	}
//	version, err := it.Uint32()
//
// Read a loose file with the same API:
//
//	f, err := os.Open("data/color.pal")
//	if err != nil {
//	    return err
//	}
//	it := dat.NewItem(f, dat.WithFilename("color.pal"))
//	defer it.Close()
//
// # Positions
//
// Every Item keeps its own read offset, bounded by [0, Size()]. SetPosition,
// Skip and Seek reject targets outside that range with [ErrOutOfRange].
// Typed reads consume their full width or nothing.
//
// Items opened from the same [Archive] share its position. Loading an item
// saves that position, reads the member, and restores it, so readers that
// use the archive directly are not disturbed.
//
// # Names
//
// Member names are normalized with [NormalizeFilename]: backslashes become
// slashes and ASCII letters are lowercased. Lookups through [Archive.Entry]
// and [Archive.Open] accept either form.
//
// # Extraction
//
// [Archive.Extract] writes members to disk in parallel:
//
//	stats, err := a.Extract(ctx, "./out",
//	    dat.ExtractWithPrefix("art/critters"),
//	    dat.ExtractWithWorkers(4),
//	)
package dat
