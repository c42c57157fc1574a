// Package schema declares the shape of a parent/junction/child association
// and compiles it into the identity configuration of the hydrator and the
// join query of the row source.
//
// Associations are usually declared in YAML. Omitted tables, keys, foreign
// keys and edge names are derived from the entity names:
//
//	name: blockItems        # collection edge; default: plural of the junction
//	item: item              # child edge; default: the child name
//	parent:   {name: Block} # table "blocks", key "id"
//	child:    {name: Item}  # table "items", key "id"
//	junction:
//	  name: BlockItem       # table "block_items"
//	  composite: true       # identity is (block_id, item_id)
//
// A junction without composite gets an independent "id" key.
package schema
