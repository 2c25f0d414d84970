package apicollectionv1

import (
	"github.com/fulldump/box"

	"github.com/fulldump/slotdb/service"
)

func BuildV1Collection(v1 *box.R, s service.Servicer) *box.R {

	collections := v1.Resource("/collections").
		WithActions(
			box.Get(listCollections).WithName("listCollections"),
			box.Post(createCollection).WithName("createCollection"),
		)

	v1.Resource("/collections/{collectionName}").
		WithActions(
			box.Get(getCollection).WithName("getCollection"),
			box.ActionPost(insert).WithName("insert"),
			box.ActionPost(getDocument).WithName("get"),
			box.ActionPost(patch).WithName("patch"),
			box.ActionPost(remove).WithName("remove"),
			box.ActionPost(find).WithName("find"),
			box.ActionPost(reserve).WithName("reserve"),
			box.ActionPost(export).WithName("export"),
			box.ActionPost(dropCollection).WithName("dropCollection"),
			box.ActionPost(createIndex).WithName("createIndex"),
			box.ActionPost(listIndexes).WithName("listIndexes"),
			box.ActionPost(getIndex).WithName("getIndex"),
			box.ActionPost(dropIndex).WithName("dropIndex"),
		)

	return collections
}
